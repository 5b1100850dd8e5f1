package cli

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/apiurl"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

func (a *app) resolveCmd() *cobra.Command {
	var (
		method            string
		id                string
		query             string
		transactionEntity string
		profileID         string
		absolute          bool
	)
	cmd := &cobra.Command{
		Use:   "resolve ENTITY",
		Short: "Print the V2 API path for an entity and method",
		Long: "Print the V2 API path for an entity and method. Entities: " +
			strings.Join(entityNames(), ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := apiurl.ParseEntity(args[0])
			if err != nil {
				return errors.Wrap(internalerrors.ErrValidation, err.Error())
			}
			m, err := apiurl.ParseMethod(method)
			if err != nil {
				return errors.Wrap(internalerrors.ErrValidation, err.Error())
			}
			te, err := parseTransactionEntity(transactionEntity)
			if err != nil {
				return err
			}

			path, err := apiurl.ResolveStrict(apiurl.Descriptor{
				Entity:            entity,
				Method:            m,
				ID:                id,
				QueryParameters:   query,
				TransactionEntity: te,
				ProfileID:         profileID,
			})
			if err != nil {
				return err
			}
			if absolute {
				path = apiurl.Join(a.cfg.GetBaseURL(), path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", string(apiurl.GET), "HTTP method")
	cmd.Flags().StringVar(&id, "id", "", "Resource id")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Encoded query string")
	cmd.Flags().StringVar(&transactionEntity, "transaction-entity", "", "Aggregate scope: merchant or profile")
	cmd.Flags().StringVar(&profileID, "profile-id", "", "Profile id for the connector list")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "Prefix the configured base URL")
	return cmd
}

func entityNames() []string {
	names := make([]string, 0, len(apiurl.Entities()))
	for _, e := range apiurl.Entities() {
		names = append(names, e.String())
	}
	return names
}

func parseTransactionEntity(s string) (apiurl.TransactionEntity, error) {
	switch strings.ToLower(s) {
	case "":
		return apiurl.TransactionUnset, nil
	case "merchant":
		return apiurl.TransactionMerchant, nil
	case "profile":
		return apiurl.TransactionProfile, nil
	}
	return "", errors.Wrapf(internalerrors.ErrValidation, "unknown transaction entity %q", s)
}
