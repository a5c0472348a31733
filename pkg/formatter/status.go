// Package formatter renders terminal output for the one-shot CLI commands.
package formatter

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/minefleet/spindle/internal/models"
	"github.com/minefleet/spindle/pkg/pricing"
)

// StatusReport bundles everything the one-shot status command gathered
type StatusReport struct {
	Instance    models.Instance
	Server      models.ServerStatus
	CPUPercent  float64
	HasCPU      bool
	MonthlyCost float64
	CostSource  string
}

// PrintStatusReport renders the report as an aligned key/value block
func PrintStatusReport(w io.Writer, report StatusReport) {
	instance := report.Instance

	name := instance.Name
	if name == "" {
		name = "-"
	}

	fmt.Fprintf(w, "%-18s %s\n", "Instance:", instance.InstanceID)
	fmt.Fprintf(w, "%-18s %s\n", "Name:", name)
	fmt.Fprintf(w, "%-18s %s\n", "Type:", instance.InstanceType)
	fmt.Fprintf(w, "%-18s %s (%s)\n", "Region:", instance.Region, instance.AvailabilityZone)
	fmt.Fprintf(w, "%-18s %s\n", "State:", instance.State)

	if instance.State == models.StateRunning {
		fmt.Fprintf(w, "%-18s %s\n", "Public IP:", orDash(instance.PublicIP))
		if !instance.LaunchTime.IsZero() {
			fmt.Fprintf(w, "%-18s %s\n", "Up since:", humanize.Time(instance.LaunchTime))
		}
		if report.HasCPU {
			fmt.Fprintf(w, "%-18s %.1f%%\n", "CPU (avg):", report.CPUPercent)
		}
		if report.CostSource == string(pricing.PricingSourceNA) {
			fmt.Fprintf(w, "%-18s N/A\n", "Est. monthly:")
		} else {
			fmt.Fprintf(w, "%-18s $%.2f (%s)\n", "Est. monthly:", report.MonthlyCost, report.CostSource)
		}
		if report.Server.Online {
			fmt.Fprintf(w, "%-18s %d/%d online\n", "Players:", report.Server.PlayersOnline, report.Server.PlayersMax)
		} else {
			fmt.Fprintf(w, "%-18s not answering yet\n", "Game server:")
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
