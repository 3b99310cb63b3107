package payroll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

// RunPayroll executes the payroll for one month. The run document is keyed by
// period, so a second run for the same month fails even when two start together.
func (s *Service) RunPayroll(ctx context.Context, input RunInput, actorID ids.UserID) (RunResult, error) {
	if err := validation.Struct(input); err != nil {
		return RunResult{}, err
	}
	runID := ids.PayrollRunKey(input.Month, input.Year)
	period := payPeriod(input.Month, input.Year)

	var result RunResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		actor, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin, directory.RoleAccountant)
		if err != nil {
			return err
		}
		exists, err := docstore.Exists(ctx, tx, KindRuns, string(runID))
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyExecuted.Withf("payroll for %s has already been executed", period)
		}

		staff, err := directory.ActiveStaff(ctx, tx)
		if err != nil {
			return err
		}
		eligible := staff[:0]
		for _, st := range staff {
			if st.Salary.IsPositive() {
				eligible = append(eligible, st)
			}
		}
		if len(eligible) == 0 {
			return ErrNoEligibleStaff
		}

		result = RunResult{PayrollRunID: runID, TotalAmount: decimal.Zero, Excluded: []Exclusion{}}
		var payslips []Payslip
		for _, st := range eligible {
			if !st.BankDetails.Complete() {
				result.Excluded = append(result.Excluded, Exclusion{StaffID: st.ID, Name: st.Name, Reason: ExclusionMissingBank})
				continue
			}
			gross, deductions, net := ComputePayroll(st.Salary, StaffInputs(st))
			if !net.IsPositive() {
				result.Excluded = append(result.Excluded, Exclusion{StaffID: st.ID, Name: st.Name, Reason: ExclusionNonPositiveNet})
				continue
			}
			payslips = append(payslips, Payslip{
				ID:           ids.PayslipKey(runID, st.ID),
				PayrollRunID: runID,
				StaffID:      st.ID,
				EmployeeName: st.Name,
				PayPeriod:    period,
				Gross:        gross,
				Deductions:   deductions,
				Amount:       net,
				BankDetails:  st.BankDetails,
				Status:       PayslipStatusGenerated,
			})
			result.TotalAmount = result.TotalAmount.Add(net)
		}
		if len(payslips) == 0 {
			return ErrNoPayableStaff.Withf("all %d eligible staff were excluded from %s", len(eligible), period)
		}
		result.EmployeeCount = len(payslips)

		run := Run{
			ID:            runID,
			Month:         input.Month,
			Year:          input.Year,
			PayPeriod:     period,
			ExecutedBy:    actor.DisplayName,
			ExecutedByID:  actor.ID,
			TotalAmount:   result.TotalAmount,
			EmployeeCount: result.EmployeeCount,
			Excluded:      result.Excluded,
		}
		batch.Create(KindRuns, string(run.ID), run, "executedAt")
		for _, slip := range payslips {
			batch.Create(KindPayslips, string(slip.ID), slip, "generatedAt")
		}
		audit.Stage(ctx, batch, string(actorID), audit.ActionPayrollExecuted, "payroll_run", string(run.ID), nil,
			map[string]any{"employeeCount": run.EmployeeCount, "totalAmount": run.TotalAmount, "excluded": len(run.Excluded)})
		return nil
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return RunResult{}, ErrAlreadyExecuted.Withf("payroll for %s has already been executed", period).WithCause(err)
	}
	if err != nil {
		return RunResult{}, err
	}

	for _, ex := range result.Excluded {
		slog.Warn("staff excluded from payroll", "run", runID, "staff", ex.StaffID, "reason", ex.Reason)
	}
	slog.Info("payroll executed", "run", runID, "employees", result.EmployeeCount, "total", result.TotalAmount.StringFixed(2))
	return result, nil
}

func (s *Service) GetRun(ctx context.Context, id ids.PayrollRunID) (Run, error) {
	run, err := docstore.Load[Run](ctx, s.store, KindRuns, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return Run{}, ErrRunNotFound.Withf("payroll run %s not found", id)
	}
	return run, err
}

// ListRuns returns runs for year, or all runs when year is zero, latest period first.
func (s *Service) ListRuns(ctx context.Context, year int) ([]Run, error) {
	q := docstore.From(KindRuns)
	if year != 0 {
		q = q.Where("year", year)
	}
	return docstore.LoadAll[Run](ctx, s.store, q.OrderByDesc("id"))
}

func (s *Service) RunPayslips(ctx context.Context, id ids.PayrollRunID) ([]Payslip, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return docstore.LoadAll[Payslip](ctx, s.store, docstore.From(KindPayslips).
		Where("payrollRunId", id).
		OrderBy("employeeName"))
}

func (s *Service) StaffPayslips(ctx context.Context, staff ids.StaffID) ([]Payslip, error) {
	return docstore.LoadAll[Payslip](ctx, s.store, docstore.From(KindPayslips).
		Where("staffId", staff).
		OrderByDesc("payrollRunId"))
}

func (s *Service) Payslip(ctx context.Context, id ids.PayslipID) (Payslip, error) {
	slip, err := docstore.Load[Payslip](ctx, s.store, KindPayslips, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return Payslip{}, ErrPayslipNotFound.Withf("payslip %s not found", id)
	}
	return slip, err
}
