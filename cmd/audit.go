package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
)

var auditFailOnCircular bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the workspace dependency graph",
	Long: `Analyze the workspace for circular internal dependencies, conflicting
external version requirements, inconsistent internal pins and the overall
dependency categorization. The exit status is non-zero when a critical
issue is found.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditFailOnCircular, "fail-on-circular", true, "Treat cycles as fatal")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	overrides := config.Overrides{}
	if cmd.Flags().Changed("fail-on-circular") {
		overrides.FailOnCircular = &auditFailOnCircular
	}

	container, err := buildContainer(overrides)
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.AuditService) error {
		report := svc.Run()

		ws := svc.Workspace()
		fmt.Printf("Workspace: %s (%s, %d packages)\n\n", ws.Root, ws.Kind, len(ws.Packages))

		for _, issue := range report.Issues {
			fmt.Printf("[%s] %s\n", severityLabel(issue.Severity), issue.Title)
			fmt.Printf("    %s\n", issue.Description)
			if issue.Suggestion != "" {
				fmt.Printf("    suggestion: %s\n", issue.Suggestion)
			}
		}

		if len(report.Categories.Totals) > 0 {
			fmt.Println("\nDependency categories:")
			for class, count := range report.Categories.Totals {
				fmt.Printf("  %-20s %d\n", class, count)
			}
		}

		if report.HasCritical() {
			return fmt.Errorf("audit found critical issues")
		}
		fmt.Println("\nAudit passed")
		return nil
	})
}

func severityLabel(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "CRITICAL"
	case domain.SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}
