package cli

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/fetch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

// apiCmd sends raw requests through the authenticated fetcher, for routes the typed
// commands do not cover.
func (a *app) apiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Send a raw request with the session headers",
	}

	get := &cobra.Command{
		Use:   "get PATH",
		Short: "GET a path relative to the base URL, or an absolute URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			out, err := fetch.NewGetMethod[any](a.fetcher).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), out)
		},
	}

	var data string
	send := &cobra.Command{
		Use:   "send METHOD PATH",
		Short: "POST, PUT, PATCH or DELETE a path with an optional JSON body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return errors.Wrapf(internalerrors.ErrValidation, "method %s is not supported, use api get for reads", args[0])
			}
			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.Wrap(internalerrors.ErrValidation, "--data is not valid JSON")
				}
				body = data
			}
			if err := a.connect(cmd); err != nil {
				return err
			}
			out, err := fetch.NewUpdateMethod[any](a.fetcher).Update(cmd.Context(), method, args[1], body)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), out)
		},
	}
	send.Flags().StringVarP(&data, "data", "d", "", "JSON request body")

	cmd.AddCommand(get, send)
	return cmd
}
