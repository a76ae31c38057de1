package plans

import (
	"fmt"
	"html/template"
	"strings"
)

var planEmailTemplate = template.Must(template.New("plan-email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; max-width: 640px; margin: 0 auto;">
	<h1 style="font-size: 22px;">{{.Title}}</h1>
	<p>Hi {{.ClientName}},</p>
	<p>{{.CoachName}} has prepared your new training plan ({{.DurationWeeks}} weeks).</p>
	{{if .Overview}}<p style="color: #52606d;">{{.Overview}}</p>{{end}}
	{{range .Weeks}}
	<h2 style="font-size: 18px; border-bottom: 1px solid #d9e2ec; padding-bottom: 4px;">Week {{.Number}}</h2>
	{{range .Days}}
	<h3 style="font-size: 15px; margin-bottom: 4px;">Day {{.Day}} &mdash; {{.Focus}}</h3>
	<ul style="margin-top: 0;">
		{{range .Exercises}}<li>{{.}}</li>
		{{end}}
	</ul>
	{{end}}
	{{end}}
	{{if .Notes}}<p><strong>Coach notes:</strong> {{.Notes}}</p>{{end}}
	<p style="color: #9aa5b1; font-size: 12px;">Sent via CoachHub</p>
</body>
</html>`))

type planEmailWeek struct {
	Number int
	Days   []planEmailDay
}

type planEmailDay struct {
	Day       int
	Focus     string
	Exercises []string
}

type planEmailData struct {
	Title         string
	ClientName    string
	CoachName     string
	Overview      string
	Notes         string
	DurationWeeks int
	Weeks         []planEmailWeek
}

// RenderPlanHTML renders the plan email body, workout days grouped by
// week in their stored order.
func RenderPlanHTML(plan *Plan, clientName, coachName string) (string, error) {
	data := planEmailData{
		Title:         plan.Title,
		ClientName:    clientName,
		CoachName:     coachName,
		Overview:      plan.Overview,
		Notes:         plan.Notes,
		DurationWeeks: plan.DurationWeeks,
	}

	weeksByNumber := make(map[int]int) // week number -> index in data.Weeks
	for _, day := range plan.Days {
		idx, ok := weeksByNumber[day.Week]
		if !ok {
			data.Weeks = append(data.Weeks, planEmailWeek{Number: day.Week})
			idx = len(data.Weeks) - 1
			weeksByNumber[day.Week] = idx
		}

		emailDay := planEmailDay{
			Day:   day.Day,
			Focus: day.Focus,
		}
		for _, exercise := range day.Exercises {
			emailDay.Exercises = append(emailDay.Exercises, formatExercise(exercise))
		}
		data.Weeks[idx].Days = append(data.Weeks[idx].Days, emailDay)
	}

	var rendered strings.Builder
	if err := planEmailTemplate.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("execute plan email template: %w", err)
	}
	return rendered.String(), nil
}

func formatExercise(e WorkoutExercise) string {
	formatted := fmt.Sprintf("%s: %d x %s", e.Name, e.Sets, e.Reps)
	if e.WeightKg != nil {
		formatted += fmt.Sprintf(" @ %.1f kg", *e.WeightKg)
	}
	if e.RestSeconds > 0 {
		formatted += fmt.Sprintf(", rest %ds", e.RestSeconds)
	}
	if e.Notes != "" {
		formatted += fmt.Sprintf(" (%s)", e.Notes)
	}
	return formatted
}
