package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studykit/quiz-service/internal/models"
	"github.com/studykit/quiz-service/internal/repositories"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService renders attempt history as a downloadable file.
type ExportService interface {
	ExportAttempts(ctx context.Context, filters repositories.AttemptFilters, format string) (*ExportResult, error)
}

type ExportResult struct {
	Data        []byte
	FileName    string
	ContentType string
}

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

func (s *exportService) ExportAttempts(ctx context.Context, filters repositories.AttemptFilters, format string) (*ExportResult, error) {
	attempts, _, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	stamp := time.Now().Format("2006-01-02")
	switch format {
	case FormatCSV:
		data, err := s.exportToCSV(attempts)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			FileName:    fmt.Sprintf("quiz-attempts-%s.csv", stamp),
			ContentType: "text/csv",
		}, nil
	case FormatXLSX:
		data, err := s.exportToExcel(attempts)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			FileName:    fmt.Sprintf("quiz-attempts-%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

var attemptExportHeaders = []string{
	"Attempt ID", "Quiz Title", "User ID", "Score", "Total Questions",
	"Percentage", "Time Taken (s)", "Started At", "Completed At",
}

func (s *exportService) exportToCSV(attempts []*models.QuizAttempt) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(attemptExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, attempt := range attempts {
		if err := writer.Write(attemptToRow(attempt)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func (s *exportService) exportToExcel(attempts []*models.QuizAttempt) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Attempts"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range attemptExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, attempt := range attempts {
		for colIndex, value := range attemptToRow(attempt) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func attemptToRow(attempt *models.QuizAttempt) []string {
	percentage := 0.0
	if attempt.TotalQuestions > 0 {
		percentage = attempt.Score / float64(attempt.TotalQuestions) * 100
	}
	timeTaken := ""
	if attempt.TimeTakenSeconds != nil {
		timeTaken = strconv.Itoa(*attempt.TimeTakenSeconds)
	}
	return []string{
		attempt.ID,
		quizTitle(attempt.QuizData),
		attempt.UserID,
		strconv.FormatFloat(attempt.Score, 'f', -1, 64),
		strconv.Itoa(attempt.TotalQuestions),
		fmt.Sprintf("%.1f", percentage),
		timeTaken,
		attempt.StartedAt.Format(time.RFC3339),
		attempt.CompletedAt.Format(time.RFC3339),
	}
}
