package employee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/bimworks/portal-backend/internal/config"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/bimworks/portal-backend/internal/pkg/storage"
	authservice "github.com/bimworks/portal-backend/internal/service/auth"
	"github.com/bimworks/portal-backend/internal/service/file"
	"github.com/shopspring/decimal"
)

type EmployeeServiceImpl struct {
	tx           database.Transactor
	userRepo     user.UserRepository
	employeeRepo employee.EmployeeRepository
	balanceRepo  leave.LeaveBalanceRepository
	fileService  file.FileService
	leaveCfg     config.LeaveConfig
	loc          *time.Location
	now          func() time.Time
}

func NewEmployeeService(
	tx database.Transactor,
	userRepo user.UserRepository,
	employeeRepo employee.EmployeeRepository,
	balanceRepo leave.LeaveBalanceRepository,
	fileService file.FileService,
	leaveCfg config.LeaveConfig,
	loc *time.Location,
) *EmployeeServiceImpl {
	return &EmployeeServiceImpl{
		tx:           tx,
		userRepo:     userRepo,
		employeeRepo: employeeRepo,
		balanceRepo:  balanceRepo,
		fileService:  fileService,
		leaveCfg:     leaveCfg,
		loc:          loc,
		now:          time.Now,
	}
}

func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	return employee.EmployeeResponse{
		ID:                emp.ID,
		UserID:            emp.UserID,
		EmployeeCode:      emp.EmployeeCode,
		FullName:          emp.FullName,
		Email:             emp.Email,
		Role:              string(emp.Role),
		Department:        emp.Department,
		Designation:       emp.Designation,
		SupervisorID:      emp.SupervisorID,
		SupervisorName:    emp.SupervisorName,
		Status:            string(emp.Status),
		BankName:          emp.BankName,
		BankAccountNumber: emp.BankAccountNumber,
		BaseSalary:        emp.BaseSalary.StringFixed(2),
		CVURL:             emp.CVURL,
		CreatedAt:         emp.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         emp.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Create implements employee.EmployeeService. The login account, the
// employee profile and the current-year leave balance are written together.
func (s *EmployeeServiceImpl) Create(ctx context.Context, actor auth.Principal, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if !actor.Can(user.PermissionEmployeeManage) {
		return employee.EmployeeResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	passwordHash, err := authservice.HashPassword(req.Password)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	salary, _ := decimal.NewFromString(req.BaseSalary)

	var created employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if req.SupervisorID != nil {
			if err := s.ensureSupervisorExists(ctx, *req.SupervisorID); err != nil {
				return err
			}
		}

		newUser, err := s.userRepo.Create(ctx, user.User{
			Email:        req.Email,
			PasswordHash: &passwordHash,
			Role:         user.Role(req.Role),
		})
		if err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return employee.ErrEmailExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		created, err = s.employeeRepo.Create(ctx, employee.Employee{
			UserID:            newUser.ID,
			EmployeeCode:      req.EmployeeCode,
			FullName:          req.FullName,
			Email:             req.Email,
			Department:        req.Department,
			Designation:       req.Designation,
			SupervisorID:      req.SupervisorID,
			Status:            employee.StatusActive,
			BankName:          req.BankName,
			BankAccountNumber: req.BankAccountNumber,
			BaseSalary:        salary,
		})
		if err != nil {
			return err
		}

		year := s.now().In(s.loc).Year()
		_, err = s.balanceRepo.Create(ctx, leave.NewBalance(created.ID, year, s.leaveCfg.AnnualDays, s.leaveCfg.SickDays, s.leaveCfg.CasualDays))
		if err != nil {
			return fmt.Errorf("failed to create leave balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee created", "employee_id", created.ID, "employee_code", created.EmployeeCode, "by", actor.UserID)
	return mapEmployeeToResponse(created), nil
}

// Get implements employee.EmployeeService. Admins may read anyone; other
// callers may read themselves and their direct reports.
func (s *EmployeeServiceImpl) Get(ctx context.Context, actor auth.Principal, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	if !actor.Can(user.PermissionEmployeeManage) && emp.ID != actor.EmployeeID && !emp.IsSupervisedBy(actor.EmployeeID) {
		return employee.EmployeeResponse{}, user.ErrInsufficientPermissions
	}

	return mapEmployeeToResponse(emp), nil
}

// GetMe implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetMe(ctx context.Context, actor auth.Principal) (employee.EmployeeResponse, error) {
	if actor.EmployeeID == "" {
		return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
	}
	emp, err := s.employeeRepo.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, actor auth.Principal, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if !actor.Can(user.PermissionEmployeeManage) {
		return employee.ListEmployeeResponse{}, user.ErrAdminAccessRequired
	}
	filter.Normalize()

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	return employee.ListEmployeeResponse{
		Employees:  responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Update implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Update(ctx context.Context, actor auth.Principal, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if !actor.Can(user.PermissionEmployeeManage) {
		return employee.EmployeeResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var updated employee.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.FullName != nil {
			emp.FullName = *req.FullName
		}
		if req.Department != nil {
			emp.Department = req.Department
		}
		if req.Designation != nil {
			emp.Designation = req.Designation
		}
		if req.Status != nil {
			emp.Status = employee.Status(*req.Status)
		}
		if req.BankName != nil {
			emp.BankName = req.BankName
		}
		if req.BankAccountNumber != nil {
			emp.BankAccountNumber = req.BankAccountNumber
		}
		if req.BaseSalary != nil {
			emp.BaseSalary, _ = decimal.NewFromString(*req.BaseSalary)
		}

		switch {
		case req.ClearSupervisor:
			emp.SupervisorID = nil
		case req.SupervisorID != nil && !emp.IsSupervisedBy(*req.SupervisorID):
			if err := s.checkSupervisor(ctx, emp.ID, *req.SupervisorID); err != nil {
				return err
			}
			emp.SupervisorID = req.SupervisorID
		}

		if req.Role != nil && user.Role(*req.Role) != emp.Role {
			if err := s.userRepo.UpdateRole(ctx, emp.UserID, user.Role(*req.Role)); err != nil {
				return fmt.Errorf("failed to update role: %w", err)
			}
		}

		updated, err = s.employeeRepo.Update(ctx, emp)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return mapEmployeeToResponse(updated), nil
}

// checkSupervisor rejects a supervisor that does not exist or that already
// reports, directly or indirectly, to employeeID.
func (s *EmployeeServiceImpl) checkSupervisor(ctx context.Context, employeeID, supervisorID string) error {
	if supervisorID == employeeID {
		return employee.ErrSupervisorCycle
	}
	if err := s.ensureSupervisorExists(ctx, supervisorID); err != nil {
		return err
	}

	chain, err := s.employeeRepo.SupervisorChain(ctx, supervisorID)
	if err != nil {
		return fmt.Errorf("failed to load supervisor chain: %w", err)
	}
	if slices.Contains(chain, employeeID) {
		return employee.ErrSupervisorCycle
	}
	return nil
}

func (s *EmployeeServiceImpl) ensureSupervisorExists(ctx context.Context, supervisorID string) error {
	if _, err := s.employeeRepo.GetByID(ctx, supervisorID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.ErrSupervisorNotFound
		}
		return err
	}
	return nil
}

// Delete implements employee.EmployeeService. The login account goes with
// the profile.
func (s *EmployeeServiceImpl) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.Can(user.PermissionEmployeeManage) {
		return user.ErrAdminAccessRequired
	}
	if id == actor.EmployeeID {
		return fmt.Errorf("you cannot delete your own employee record: %w", user.ErrInsufficientPermissions)
	}

	var removed employee.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.employeeRepo.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.userRepo.Delete(ctx, emp.UserID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		removed = emp
		return nil
	})
	if err != nil {
		return err
	}

	if removed.CVURL != nil {
		if err := s.fileService.DeleteByURL(ctx, storage.BucketCVs, *removed.CVURL); err != nil {
			slog.Warn("failed to delete cv file", "employee_id", id, "error", err)
		}
	}
	return nil
}

// UploadCV implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UploadCV(ctx context.Context, actor auth.Principal, id string, f io.Reader, filename string) (employee.EmployeeResponse, error) {
	if !actor.Can(user.PermissionEmployeeManage) && id != actor.EmployeeID {
		return employee.EmployeeResponse{}, user.ErrInsufficientPermissions
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	url, err := s.fileService.UploadCV(ctx, emp.ID, f, filename)
	if err != nil {
		if errors.Is(err, file.ErrUnsupportedType) || errors.Is(err, file.ErrFileTooLarge) {
			return employee.EmployeeResponse{}, fmt.Errorf("%w (%v)", employee.ErrInvalidCVFile, err)
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to upload cv: %w", err)
	}

	if err := s.employeeRepo.UpdateCVURL(ctx, emp.ID, &url); err != nil {
		if delErr := s.fileService.DeleteByURL(ctx, storage.BucketCVs, url); delErr != nil {
			slog.Warn("failed to clean up cv file", "url", url, "error", delErr)
		}
		return employee.EmployeeResponse{}, err
	}

	if emp.CVURL != nil && *emp.CVURL != url {
		if err := s.fileService.DeleteByURL(ctx, storage.BucketCVs, *emp.CVURL); err != nil {
			slog.Warn("failed to delete previous cv", "employee_id", emp.ID, "error", err)
		}
	}

	emp.CVURL = &url
	return mapEmployeeToResponse(emp), nil
}

var _ employee.EmployeeService = (*EmployeeServiceImpl)(nil)
