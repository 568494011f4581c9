package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout é o formato usado no envio de datas para a API.
const DateLayout = "2006-01-02"

// dateLayouts são os formatos aceitos na leitura. A API devolve datas sem fuso
// ("2024-03-15T00:00:00"); os formulários usam ISO ou o formato brasileiro.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	DateLayout,
	"02/01/2006",
}

// Date é uma data de calendário (sem hora) trocada com a API.
type Date struct {
	time.Time
}

// NewDate cria uma Date a partir de ano, mês e dia.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf descarta a hora de um time.Time, mantendo o dia no fuso dele.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate aceita "2006-01-02", "02/01/2006" e os formatos de data/hora da API.
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("data '%s' em formato não reconhecido", raw)
}

// String retorna a data no formato enviado à API.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// BR retorna a data no formato dd/mm/aaaa.
func (d Date) BR() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// MarshalJSON grava a data como "2006-01-02", ou null se vazia.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON aceita null, string vazia e qualquer formato de dateLayouts.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("data deve ser uma string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
