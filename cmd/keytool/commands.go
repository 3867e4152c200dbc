package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"marketplace-backend/domain/records"
	"marketplace-backend/infrastructure/secrets"
	"marketplace-backend/pkg/cipher"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	SecretKey string
	SecretIV  string
	SecretID  string
	Region    string
	Format    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "keytool",
		Short:         "Inspect encrypted values and storage keys",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.SecretKey, "secret-key", os.Getenv("CIPHER_SECRET_KEY"), "cipher secret key")
	flags.StringVar(&opts.SecretIV, "secret-iv", os.Getenv("CIPHER_SECRET_IV"), "cipher secret iv")
	flags.StringVar(&opts.SecretID, "secret-id", os.Getenv("CIPHER_SECRET_ID"), "Secrets Manager secret holding secretKey and secretIV")
	flags.StringVar(&opts.Region, "region", os.Getenv("AWS_REGION"), "AWS region for --secret-id")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newEncryptCommand(opts))
	cmd.AddCommand(newDecryptCommand(opts))
	cmd.AddCommand(newKeyCommand(opts))
	return cmd
}

func newEncryptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Encrypt one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.cipher(cmd.Context())
			if err != nil {
				return err
			}
			out, err := c.Encrypt(args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]string{"encryptedData": out}, out)
		},
	}
}

func newDecryptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Decrypt one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.cipher(cmd.Context())
			if err != nil {
				return err
			}
			out, err := c.Decrypt(args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]string{"decryptedData": out}, out)
		},
	}
}

// keyBuilders maps an entity name to the number of plaintext ids it takes
// and the function that turns their ciphertexts into a storage key.
var keyBuilders = map[string]struct {
	ids   int
	build func(enc func(string) (string, error), ids []string) (records.KeyPair, error)
}{
	"user":        {1, labelled(records.UserKey, records.LabelProfile)},
	"userid":      {1, labelled(records.UserIDKey, records.LabelProfile)},
	"marketplace": {1, labelled(records.MarketplaceKey, records.LabelMetadata)},
	"listing":     {1, labelled(records.ListingKey, records.LabelMetadata)},
	"auction":     {1, labelled(records.AuctionKey, records.LabelMetadata)},
	"card":        {1, labelled(records.CardKey, records.LabelMetadata)},
	"message":     {1, labelled(records.MessageKey, records.LabelMetadata)},
	"membership":  {2, paired(records.MembershipKey)},
	"bid":         {2, paired(records.BidKey)},
}

func labelled(fn func(string, string) records.KeyPair, label string) func(func(string) (string, error), []string) (records.KeyPair, error) {
	return func(enc func(string) (string, error), ids []string) (records.KeyPair, error) {
		return encryptPair(enc, fn, ids[0], label)
	}
}

func paired(fn func(string, string) records.KeyPair) func(func(string) (string, error), []string) (records.KeyPair, error) {
	return func(enc func(string) (string, error), ids []string) (records.KeyPair, error) {
		return encryptPair(enc, fn, ids[0], ids[1])
	}
}

func encryptPair(enc func(string) (string, error), fn func(string, string) records.KeyPair, a, b string) (records.KeyPair, error) {
	encA, err := enc(a)
	if err != nil {
		return records.KeyPair{}, err
	}
	encB, err := enc(b)
	if err != nil {
		return records.KeyPair{}, err
	}
	return fn(encA, encB), nil
}

func entityNames() []string {
	return []string{"user", "userid", "marketplace", "membership", "listing", "auction", "bid", "card", "message"}
}

func newKeyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "key <entity> <id> [id]",
		Short: "Compute the storage key of an entity",
		Long: `Compute the partition and sort key an entity is stored under.

Entities: ` + strings.Join(entityNames(), ", ") + `.
user takes the email; membership takes the marketplace id and the user id;
bid takes the auction id and the bid id.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, ok := keyBuilders[args[0]]
			if !ok {
				return fmt.Errorf("unknown entity %q: must be one of %s", args[0], strings.Join(entityNames(), ", "))
			}
			ids := args[1:]
			if len(ids) != builder.ids {
				return fmt.Errorf("%s takes %d id(s), got %d", args[0], builder.ids, len(ids))
			}

			c, err := opts.cipher(cmd.Context())
			if err != nil {
				return err
			}
			key, err := builder.build(c.Encrypt, ids)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), key, "PK: "+key.PartitionKey+"\nSK: "+key.SortKey)
		},
	}
}

func (o *rootOptions) cipher(ctx context.Context) (*cipher.FieldCipher, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var client secrets.GetSecretValueAPI
	if o.SecretID != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(o.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(awsCfg)
	}

	s, err := secrets.Load(ctx, client, secrets.Source{SecretID: o.SecretID, SecretKey: o.SecretKey, SecretIV: o.SecretIV})
	if err != nil {
		return nil, err
	}
	return cipher.New(s.SecretKey, s.SecretIV)
}

func (o *rootOptions) print(w io.Writer, v interface{}, text string) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
