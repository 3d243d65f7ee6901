package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStore()
		if err != nil {
			return err
		}

		summaries, err := st.List(cmd.Context())
		if err != nil {
			return err
		}

		for _, s := range summaries {
			fmt.Printf("%s\t%s\t%d messages\t%s\n",
				s.StorageKey, s.Name, s.MessageCount,
				s.Updated.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var ShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a stored conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStore()
		if err != nil {
			return err
		}

		rec, err := st.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n\n", rec.Name, rec.StorageKey)
		for _, msg := range rec.Messages {
			fmt.Println(msg.View())
		}
		return nil
	},
}

var RenameCmd = &cobra.Command{
	Use:   "rename <key> <name>",
	Short: "Rename a stored conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStore()
		if err != nil {
			return err
		}
		return st.Rename(cmd.Context(), args[0], args[1])
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStore()
		if err != nil {
			return err
		}
		return st.Delete(cmd.Context(), args[0])
	},
}
