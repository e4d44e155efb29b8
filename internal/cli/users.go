package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/useradmin/internal/model"
	"github.com/vyrodovalexey/useradmin/internal/state"
)

func newListCommand() *cobra.Command {
	var (
		page int
		size int
		sort string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			var patch state.QueryPatch
			flags := cmd.Flags()
			if flags.Changed("size") {
				patch = state.WithSize(size)
			}
			if flags.Changed("sort") {
				s := model.SortOption(sort)
				patch.Sort = &s
			}
			if flags.Changed("page") {
				if page < 0 {
					return fmt.Errorf("page must not be negative, got %d", page)
				}
				patch.Page = &page
			}

			if err := sess.store.ApplyQuery(cmd.Context(), patch); err != nil {
				return storeError(sess.store, err)
			}
			return renderSnapshot(cmd.OutOrStdout(), sess.store.Snapshot(), sess.json)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", model.DefaultPage, "zero-based page index")
	cmd.Flags().IntVarP(&size, "size", "s", model.DefaultSize, "users per page (1-100)")
	cmd.Flags().StringVar(&sort, "sort", string(model.DefaultSort), "sort key (user_id, username)")

	return cmd
}

func newCreateCommand() *cobra.Command {
	var values model.UserFormValues

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			if err := values.ValidateCreate(); err != nil {
				return err
			}

			if err := sess.store.Create(cmd.Context(), values); err != nil {
				return storeError(sess.store, err)
			}
			return renderResult(cmd.OutOrStdout(), sess.store.Snapshot(), sess.json)
		},
	}

	cmd.Flags().StringVarP(&values.Username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&values.FullName, "full-name", "n", "", "display name")
	cmd.Flags().StringVar(&values.Password, "password", "", "initial password")

	return cmd
}

func newUpdateCommand() *cobra.Command {
	var values model.UserFormValues

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Change a user's full name or password",
		Long:  "Only non-blank values are sent. The username cannot be changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := values.ValidateEdit(); err != nil {
				return err
			}

			if err := sess.store.Update(cmd.Context(), model.User{UserID: id}, values); err != nil {
				return storeError(sess.store, err)
			}
			return renderResult(cmd.OutOrStdout(), sess.store.Snapshot(), sess.json)
		},
	}

	cmd.Flags().StringVarP(&values.FullName, "full-name", "n", "", "new display name")
	cmd.Flags().StringVar(&values.Password, "password", "", "new password")

	return cmd
}

func newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <user-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if !yes {
				if !confirm(cmd, fmt.Sprintf("Are you sure you want to delete user %d? [y/N] ", id)) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := sess.store.Delete(cmd.Context(), model.User{UserID: id}); err != nil {
				return storeError(sess.store, err)
			}
			return renderResult(cmd.OutOrStdout(), sess.store.Snapshot(), sess.json)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user ID %q", arg)
	}
	return id, nil
}

// confirm asks prompt on stderr and reports whether the answer was yes.
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
