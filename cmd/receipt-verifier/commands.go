package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/davidahmann/relia-zk/internal/canonical"
	"github.com/davidahmann/relia-zk/internal/crypto"
	"github.com/davidahmann/relia-zk/internal/gateway"
	"github.com/davidahmann/relia-zk/internal/trust"
)

func newHashCmd(g *globalOptions) *cobra.Command {
	var receiptPath string
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print a receipt's canonical text, receipt hash and signing digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			receipt, err := readReceipt(receiptPath)
			if err != nil {
				return failure("%v", err)
			}
			text, err := canonical.Text(receipt)
			if err != nil {
				return failure("canonicalize: %v", err)
			}
			hash, err := crypto.ReceiptHash(receipt)
			if err != nil {
				return failure("hash: %v", err)
			}
			digest, _, err := crypto.SigningDigest(receipt)
			if err != nil {
				return failure("signing digest: %v", err)
			}
			fmt.Fprintln(g.stdout, text)
			fmt.Fprintf(g.stdout, "receipt_hash (sha256 canonical): 0x%s\n", hash)
			fmt.Fprintf(g.stdout, "signing digest (eip-191): %s\n", hexutil.Encode(digest))
			return nil
		},
	}
	cmd.Flags().StringVar(&receiptPath, "receipt", "", "path to receipt JSON")
	_ = cmd.MarkFlagRequired("receipt")
	return cmd
}

func newSignCmd(g *globalOptions) *cobra.Command {
	var receiptPath, keyPath, outPath string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a receipt as a gateway would (development helper)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			receipt, err := readReceipt(receiptPath)
			if err != nil {
				return failure("%v", err)
			}
			key, err := crypto.LoadPrivateKey(keyPath)
			if err != nil {
				return failure("load key: %v", err)
			}
			signature, err := crypto.SignReceipt(receipt, key)
			if err != nil {
				return failure("sign: %v", err)
			}
			fmt.Fprintf(g.stdout, "signer: %s\n", strings.ToLower(crypto.AddressOf(key).Hex()))
			fmt.Fprintf(g.stdout, "receipt_sig: %s\n", signature)

			if outPath == "" {
				return nil
			}
			obj, ok := receipt.(canonical.Object)
			if !ok {
				return failure("receipt is not a JSON object")
			}
			signed := obj.Set(crypto.FieldSignature, canonical.String(signature))
			if err := writeJSON(outPath, signed); err != nil {
				return failure("write receipt: %v", err)
			}
			fmt.Fprintf(g.stdout, "saved signed receipt to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&receiptPath, "receipt", "", "path to receipt JSON")
	cmd.Flags().StringVar(&keyPath, "key", "", "secp256k1 private key file (hex or raw 32 bytes)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the receipt with receipt_sig set")
	_ = cmd.MarkFlagRequired("receipt")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

type fetchOptions struct {
	api    string
	id     string
	anchor bool
	out    string
}

func newFetchCmd(g *globalOptions) *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a receipt from the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newGatewayClient(g, opts.api)
			if err != nil {
				return err
			}
			return fetchReceipt(cmd, g, client, opts.id, opts.anchor, opts.out)
		},
	}
	cmd.Flags().StringVar(&opts.api, "api", "", "gateway base URL (default from config)")
	cmd.Flags().StringVar(&opts.id, "id", "", "receipt id")
	cmd.Flags().BoolVar(&opts.anchor, "anchor", false, "anchor the receipt on L2 before fetching")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the receipt here instead of stdout")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

type issueOptions struct {
	api         string
	mode        string
	toolID      string
	amount      int
	description string
	query       string
	datasets    string
	authKey     string
	anchor      bool
	out         string
}

func newIssueCmd(g *globalOptions) *cobra.Command {
	opts := &issueOptions{}
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Have the gateway issue a receipt through a tool call or retrieval query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newGatewayClient(g, opts.api)
			if err != nil {
				return err
			}

			var id string
			switch opts.mode {
			case "tool":
				id, err = client.CallTool(cmd.Context(), gateway.ToolCall{
					ToolID:  opts.toolID,
					Args:    map[string]any{"amount": opts.amount, "description": opts.description},
					AuthKey: opts.authKey,
				})
			case "retrieval":
				id, err = client.Query(cmd.Context(), gateway.RetrievalQuery{
					Query:    opts.query,
					Datasets: splitList(opts.datasets),
					AuthKey:  opts.authKey,
				})
			default:
				return usageError("issue requires --mode tool or --mode retrieval")
			}
			if err != nil {
				return failure("issue: %v", err)
			}
			fmt.Fprintf(g.stdout, "receipt_id=%s\n", id)
			return fetchReceipt(cmd, g, client, id, opts.anchor, opts.out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.api, "api", "", "gateway base URL (default from config)")
	f.StringVar(&opts.mode, "mode", "", "tool or retrieval")
	f.StringVar(&opts.toolID, "tool-id", "payments.demo@1.0.0", "tool to call")
	f.IntVar(&opts.amount, "amount", 100, "tool call amount")
	f.StringVar(&opts.description, "description", "demo payment", "tool call description")
	f.StringVar(&opts.query, "query", "demo question", "retrieval query")
	f.StringVar(&opts.datasets, "datasets", "demo-ds-1", "comma-separated datasets")
	f.StringVar(&opts.authKey, "auth-key", "demo", "gateway auth key")
	f.BoolVar(&opts.anchor, "anchor", false, "anchor the receipt on L2 before fetching")
	f.StringVar(&opts.out, "out", "", "write the receipt here instead of stdout")
	return cmd
}

func newGatewayClient(g *globalOptions, api string) (*gateway.Client, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return gateway.NewClient(firstNonEmpty(api, cfg.Gateway.API)), nil
}

func fetchReceipt(cmd *cobra.Command, g *globalOptions, client *gateway.Client, id string, anchor bool, outPath string) error {
	ctx := cmd.Context()
	logger := g.logger()

	if anchor {
		if err := client.AnchorL2(ctx, id); err != nil {
			logger.Warn("anchor failed", "receipt_id", id, "error", err)
		}
	}

	receipt, err := client.FetchReceipt(ctx, id)
	if err != nil {
		return failure("fetch: %v", err)
	}

	verdict, err := client.VerifyRemote(ctx, id)
	if err != nil {
		logger.Warn("remote verify failed", "receipt_id", id, "error", err)
	} else {
		fmt.Fprintf(g.stdout, "verify.ok=%t sig_ok=%t snapshot_ok=%t\n", verdict.OK, verdict.SigOK, verdict.SnapshotOK)
	}
	if anchorID, ok := canonical.StringAt(receipt, crypto.FieldAnchor, "anchor_id"); ok {
		txHash, _ := canonical.StringAt(receipt, crypto.FieldAnchor, "l2_tx", "tx_hash")
		fmt.Fprintf(g.stdout, "anchor: %s tx: %s\n", anchorID, txHash)
	}

	if outPath == "" {
		return printJSON(g.stdout, "receipt:", receipt)
	}
	if err := writeJSON(outPath, receipt); err != nil {
		return failure("write receipt: %v", err)
	}
	fmt.Fprintf(g.stdout, "saved receipt to %s\n", outPath)
	return nil
}

func newTrustCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Trust profile tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lint PROFILE",
		Short: "Validate a trust profile and print its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := trust.Load(args[0])
			if err != nil {
				return failure("%v", err)
			}
			fmt.Fprintf(g.stdout, "ok profile_id=%s profile_hash=%s\n", loaded.Profile.ProfileID, loaded.Hash)
			return nil
		},
	})
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
