package admin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func NewUserAddCommand(opts *RootOptions, connect Connector) *cobra.Command {
	var reg services.Registration

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Username = args[0]

			pw, err := getPassword(cmd)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			reg.Password = pw

			b, err := opts.open(cmd.Context(), connect)
			if err != nil {
				return err
			}
			defer b.Close()

			u, err := b.AddUser(cmd.Context(), reg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %s created with id %d\n", u.UserName, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.Country, "country", "", "country")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	for _, name := range []string{"first-name", "last-name", "country", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// getPassword prompts on a terminal without echo. Piped input is read as
// a single line so the command can be scripted.
func getPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && isTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
		pw, err := readPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(pw)
		return string(pw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
