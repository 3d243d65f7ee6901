package cmds

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/store"
)

var SendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send a message to a provider and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}

		convKey, _ := cmd.Flags().GetString("conversation")
		providerID, _ := cmd.Flags().GetString("provider")
		save, _ := cmd.Flags().GetBool("save")
		text := strings.Join(args, " ")

		var msgs conversation.Conversation
		var rec *store.Record
		if convKey != "" {
			rec, err = rt.store.Load(cmd.Context(), convKey)
			if err != nil {
				return err
			}
			msgs = rec.Messages
		}

		exchange, err := rt.gateway.Send(cmd.Context(), msgs, text, providerID)
		if err != nil {
			return err
		}

		fmt.Println(exchange.Reply)

		if save || rec != nil {
			if rec == nil {
				rec = &store.Record{}
			}
			rec.Messages = exchange.Messages
			if err := rt.store.Save(cmd.Context(), rec); err != nil {
				return err
			}
			log.Info().Str("key", rec.StorageKey).Msg("conversation saved")
		}

		return nil
	},
}

func init() {
	SendCmd.Flags().String("conversation", "", "Continue a stored conversation by key")
	SendCmd.Flags().String("provider", "", "Provider id (default: configured default)")
	SendCmd.Flags().Bool("save", false, "Persist the exchange to the store")
}
