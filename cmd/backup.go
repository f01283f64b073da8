package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage manifest backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups, newest first",
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore the manifests recorded by a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupDelete,
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupList(*cobra.Command, []string) error {
	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.UpgradeService) error {
		backups, listErr := svc.Backups()
		if listErr != nil {
			return listErr
		}
		if len(backups) == 0 {
			fmt.Println("No backups")
			return nil
		}
		for _, b := range backups {
			status := "pending"
			if b.Succeeded {
				status = "succeeded"
			}
			fmt.Printf("%s\t%s\t%d files\t%s\n", b.ID, b.Operation, len(b.Files), status)
		}
		return nil
	})
}

func runBackupRestore(_ *cobra.Command, args []string) error {
	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.UpgradeService) error {
		if restoreErr := svc.Rollback(args[0]); restoreErr != nil {
			return restoreErr
		}
		fmt.Printf("Restored backup %s\n", args[0])
		return nil
	})
}

func runBackupDelete(_ *cobra.Command, args []string) error {
	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.UpgradeService) error {
		if delErr := svc.DeleteBackup(args[0]); delErr != nil {
			return delErr
		}
		fmt.Printf("Deleted backup %s\n", args[0])
		return nil
	})
}
