package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userEmail string
	userLang  string
	userToken string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Mirror users issued by the identity system and manage their settings",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user with an existing auth token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := userToken
		if token == "" {
			var err error
			token, err = readToken(cmd)
			if err != nil {
				return err
			}
		}

		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := services.NewUserService(db).CreateUser(cmd.Context(), args[0], userEmail, userLang, token)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created with language %s\n", user.Username, user.DisplayLang)
		return nil
	},
}

var usersLangCmd = &cobra.Command{
	Use:   "lang <username> <lang>",
	Short: "Change a user's display language",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		users := services.NewUserService(db)
		user, err := users.GetUserByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		updated, err := services.NewLanguageService(db, users).ChangeLang(cmd.Context(), user, args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' display language set to %s\n", updated.Username, updated.DisplayLang)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "user email")
	usersAddCmd.Flags().StringVar(&userLang, "lang", "EN", "display language (EN, PT or FR)")
	usersAddCmd.Flags().StringVar(&userToken, "token", "", "auth token issued by the identity system (prompted when omitted)")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersLangCmd)
	rootCmd.AddCommand(usersCmd)
}

// readToken prompts for the token without echo on a terminal, or reads one
// line from stdin otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(cmd.OutOrStderr(), "Enter auth token: ")
	token, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}
