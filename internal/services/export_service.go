package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/classhub/quiz-service/internal/repositories"
)

// exportPageSize bounds how many attempt rows a single export pulls per query.
const exportPageSize = 500

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportAttempts renders the filtered attempt history as an xlsx workbook.
func (s *exportService) ExportAttempts(ctx context.Context, filters repositories.AttemptFilters) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close export workbook", "error", err)
		}
	}()

	const sheet = "Attempts"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{
		"Attempt ID", "Student ID", "Student Name", "Unit", "Category",
		"Score", "Completion", "Completed At", "Questions", "Correct",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	row := 2
	page := filters
	page.Limit = exportPageSize
	page.Offset = 0

	for {
		attempts, _, err := s.repo.Attempt().List(ctx, nil, page)
		if err != nil {
			return nil, fmt.Errorf("failed to list attempts for export: %w", err)
		}
		if len(attempts) == 0 {
			break
		}

		names := resolveStudentNames(ctx, s.repo.User(), s.logger, attempts)
		for _, a := range attempts {
			outcomes := a.OutcomeList()
			correct := 0
			for _, o := range outcomes {
				if o.Correct {
					correct++
				}
			}

			cells := []interface{}{
				a.ID, a.StudentID, names[a.StudentID], a.UnitID, a.Category,
				a.Score, string(a.CompletionReason),
				a.CompletedAt.Format("2006-01-02 15:04:05"),
				len(outcomes), correct,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
			row++
		}

		if len(attempts) < exportPageSize {
			break
		}
		page.Offset += exportPageSize
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export workbook: %w", err)
	}

	s.logger.Info("attempts exported", "rows", row-2)
	return buf.Bytes(), nil
}
