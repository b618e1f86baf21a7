package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
)

// Periodos soportados por el reporte de salidas.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodCustom  = "custom"
)

const dateLayout = "2006-01-02"

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Range intervalo semiabierto [From, To) con su etiqueta legible.
type Range struct {
	Period string
	From   time.Time
	To     time.Time
	Label  string
}

// ResolveRange calcula el rango de un periodo a partir de la fecha de referencia.
// La semana va de lunes a domingo. En custom, from y to son días inclusivos.
func ResolveRange(period, date, from, to string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodDaily
	}
	ref := startOfDay(now.In(loc))
	if date != "" {
		d, err := parseDay(date, loc)
		if err != nil {
			return Range{}, err
		}
		ref = d
	}

	switch period {
	case PeriodDaily:
		return Range{Period: period, From: ref, To: ref.AddDate(0, 0, 1), Label: dayLabel(ref)}, nil
	case PeriodWeekly:
		offset := (int(ref.Weekday()) + 6) % 7 // lunes = 0
		start := ref.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 7)
		return Range{Period: period, From: start, To: end, Label: weekLabel(start, end.AddDate(0, 0, -1))}, nil
	case PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		return Range{Period: period, From: start, To: start.AddDate(0, 1, 0), Label: monthLabel(start)}, nil
	case PeriodCustom:
		if from == "" || to == "" {
			return Range{}, fmt.Errorf("%w: el periodo custom requiere from y to", domain.ErrInvalidInput)
		}
		start, err := parseDay(from, loc)
		if err != nil {
			return Range{}, err
		}
		last, err := parseDay(to, loc)
		if err != nil {
			return Range{}, err
		}
		if last.Before(start) {
			return Range{}, fmt.Errorf("%w: to es anterior a from", domain.ErrInvalidInput)
		}
		label := fmt.Sprintf("Del %s al %s", start.Format("02/01/2006"), last.Format("02/01/2006"))
		return Range{Period: period, From: start, To: last.AddDate(0, 0, 1), Label: label}, nil
	default:
		return Range{}, fmt.Errorf("%w: periodo %q", domain.ErrInvalidInput, period)
	}
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q (use YYYY-MM-DD)", domain.ErrInvalidInput, s)
	}
	return d, nil
}

// ParseTimeParam acepta RFC3339 o YYYY-MM-DD (medianoche en loc).
func ParseTimeParam(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := parseDay(s, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// dayLabel ej: "14 de marzo de 2026".
func dayLabel(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), strings.ToLower(monthNames[t.Month()-1]), t.Year())
}

// weekLabel ej: "Semana del 9 al 15 de marzo de 2026" o, si cruza meses,
// "Semana del 30 de marzo al 5 de abril de 2026".
func weekLabel(start, last time.Time) string {
	if start.Month() == last.Month() {
		return fmt.Sprintf("Semana del %d al %s", start.Day(), dayLabel(last))
	}
	if start.Year() == last.Year() {
		return fmt.Sprintf("Semana del %d de %s al %s", start.Day(), strings.ToLower(monthNames[start.Month()-1]), dayLabel(last))
	}
	return fmt.Sprintf("Semana del %s al %s", dayLabel(start), dayLabel(last))
}
