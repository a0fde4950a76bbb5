package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"remindly/internal/repository"
)

// ExportService renders a user's calendar range as a downloadable workbook.
type ExportService interface {
	// ExportAgenda expands [from, to] and writes one xlsx sheet with a row
	// per occurrence, chronological.
	ExportAgenda(ctx context.Context, userID string, from, to string) ([]byte, error)
}

type exportService struct {
	repo     *repository.Repository
	calendar CalendarService
	logger   *zap.Logger
}

// NewExportService builds the export service.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:     repo,
		calendar: NewCalendarService(repo, logger),
		logger:   logger,
	}
}

func (s *exportService) ExportAgenda(ctx context.Context, userID string, from, to string) ([]byte, error) {
	occurrences, err := s.calendar.ExpandRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	// expansion output is pass-ordered; agenda rows read top to bottom
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].EventDate != occurrences[j].EventDate {
			return occurrences[i].EventDate < occurrences[j].EventDate
		}
		return occurrences[i].Title < occurrences[j].Title
	})

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Agenda"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Title", "Description", "Recurrence", "Reminder"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "E1", headerStyle)
	}

	for i, occ := range occurrences {
		row := i + 2
		reminder := ""
		if occ.ReminderTime != nil {
			reminder = *occ.ReminderTime
		}
		cadence := occ.RecurrenceType
		if occ.RecurrenceInterval > 1 {
			cadence = fmt.Sprintf("%s x%d", occ.RecurrenceType, occ.RecurrenceInterval)
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), occ.EventDate)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), occ.Title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), occ.Description)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), cadence)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), reminder)
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "C", 32)
	f.SetColWidth(sheet, "D", "E", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, err
	}
	return buf.Bytes(), nil
}
