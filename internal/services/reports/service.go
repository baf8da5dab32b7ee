package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportTypes = []domain.ReportType{
	{ID: "enterprises", Label: "Enterprises", Description: "Identification and contact of monitored enterprises"},
	{ID: "users", Label: "Users", Description: "Provisioned accounts and their roles"},
	{ID: "kpis", Label: "KPIs", Description: "Indicator targets, current values and status"},
	{ID: "conventions", Label: "Conventions", Description: "Conventions with their window and status"},
}

// Service renders tabular exports as XLSX workbooks.
type Service struct {
	store ports.Store
	now   func() time.Time
}

func New(store ports.Store) *Service { return &Service{store: store, now: time.Now} }

var _ ports.Reports = (*Service)(nil)

func (s *Service) Types() []domain.ReportType {
	return append([]domain.ReportType(nil), reportTypes...)
}

func (s *Service) Generate(ctx context.Context, req domain.ReportRequest) (domain.Report, error) {
	switch strings.ToLower(req.Format) {
	case "", "excel", "xlsx":
	case "pdf":
		return domain.Report{}, domain.Validation("pdf reports are not available, use excel")
	default:
		return domain.Report{}, domain.Validation("unknown report format %q", req.Format)
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return domain.Report{}, domain.Validation("dateDebut must not be after dateFin")
	}

	header, rows, err := s.table(ctx, req)
	if err != nil {
		return domain.Report{}, err
	}
	data, err := render(req.Type, header, rows)
	if err != nil {
		return domain.Report{}, domain.Persistence("render report", err)
	}
	return domain.Report{
		Filename:    fmt.Sprintf("rapport-%s-%s.xlsx", req.Type, s.now().UTC().Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func (s *Service) table(ctx context.Context, req domain.ReportRequest) ([]string, [][]any, error) {
	in := periodFilter(req.From, req.To)
	var rows [][]any
	switch req.Type {
	case "enterprises":
		list, err := s.store.Enterprises.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range list {
			if in(e.CreatedAt) {
				id := e.Identification
				rows = append(rows, []any{e.ID.String(), id.NomEntreprise, id.Region, id.Ville, id.SecteurActivite, id.SousSecteur, e.Contact.Email, e.Contact.Domain})
			}
		}
		return []string{"ID", "Nom", "Région", "Ville", "Secteur", "Sous-secteur", "Email", "Domaine"}, rows, nil
	case "users":
		list, err := s.store.Users.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, u := range list {
			if in(u.CreatedAt) {
				rows = append(rows, []any{u.ID.String(), u.Name, u.Email, string(u.Role), u.Active})
			}
		}
		return []string{"ID", "Nom", "Email", "Rôle", "Actif"}, rows, nil
	case "kpis":
		list, err := s.store.Indicators.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, i := range list {
			if in(i.CreatedAt) {
				rows = append(rows, []any{i.ID.String(), i.EnterpriseID.String(), i.Name, i.Unit, i.TargetValue.InexactFloat64(), i.CurrentValue.InexactFloat64(), string(i.Status)})
			}
		}
		return []string{"ID", "Entreprise", "Indicateur", "Unité", "Cible", "Valeur", "Statut"}, rows, nil
	case "conventions":
		list, err := s.store.Conventions.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range list {
			if in(c.CreatedAt) {
				rows = append(rows, []any{c.ID.String(), c.EnterpriseID.String(), c.Type, string(c.Status), domain.FormatDate(c.StartDate), domain.FormatDate(c.EndDate), len(c.Documents), len(c.Indicators)})
			}
		}
		return []string{"ID", "Entreprise", "Type", "Statut", "Début", "Fin", "Documents", "Indicateurs"}, rows, nil
	default:
		return nil, nil, domain.Validation("unknown report type %q", req.Type)
	}
}

// periodFilter matches times within [from, to], both calendar days inclusive. Zero bounds are open.
func periodFilter(from, to time.Time) func(time.Time) bool {
	from = domain.DateOf(from)
	if !to.IsZero() {
		to = domain.DateOf(to).AddDate(0, 0, 1)
	}
	return func(t time.Time) bool {
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && !t.Before(to) {
			return false
		}
		return true
	}
}

func render(sheet string, header []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
