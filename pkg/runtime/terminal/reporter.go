package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/bc-tools/sales-board/pkg/models/domain"
)

// Reporter renders a leaderboard to the console in a formatted text form.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(period domain.Period, rows []domain.LeaderboardRow) error {
	tmpl := `
Sales leaderboard ({{.Period.Filter}})
Period: {{.Period.StartDate}} to {{.Period.EndDate}}

{{range $i, $row := .Rows}}
#{{inc $i}} {{$row.ClinicName}}
  Total:      IDR {{printf "%.0f" $row.Total}}
  Products:   IDR {{printf "%.0f" $row.ProductTotal}}
  Treatments: IDR {{printf "%.0f" $row.TreatmentTotal}}
  Target:     IDR {{printf "%.0f" $row.Target}} ({{$row.Achievement}}%)
{{end}}
`
	t, err := template.New("leaderboard").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, struct {
		Period domain.Period
		Rows   []domain.LeaderboardRow
	}{Period: period, Rows: rows})
}
