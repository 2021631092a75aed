// Package ledgerctl implements the ledger operator CLI.
package ledgerctl

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mintworks/ledger/internal/ledger/auth"
	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/platform/config"
)

const usage = `usage: ledgerctl <command> [flags]

commands:
  grant       mint an administrator grant
  collection  show collection state
  issue       issue tokens to a buyer
  withdraw    withdraw the treasury (requires a grant)
`

type grantEnv struct {
	Issuer     string `env:"MINTWORKS_ADMIN_GRANT_ISSUER"`
	Audience   string `env:"MINTWORKS_ADMIN_GRANT_AUDIENCE"`
	PrivateKey string `env:"MINTWORKS_ADMIN_GRANT_PRIVATE_KEY"`
}

// Run dispatches a ledgerctl command.
func Run(args []string, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("command is required")
	}

	switch args[0] {
	case "grant":
		return runGrant(args[1:], out)
	case "collection":
		return runCollection(args[1:], out)
	case "issue":
		return runIssue(args[1:], out)
	case "withdraw":
		return runWithdraw(args[1:], out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runGrant(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	fs.SetOutput(out)
	subject := fs.String("subject", "", "grant subject account")
	ttl := fs.Duration("ttl", 15*time.Minute, "grant lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var env grantEnv
	if err := config.ParseEnv(&env); err != nil {
		return err
	}
	if strings.TrimSpace(env.PrivateKey) == "" {
		return errors.New("MINTWORKS_ADMIN_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(env.PrivateKey))
	if err != nil {
		keyBytes, err = base64.StdEncoding.DecodeString(strings.TrimSpace(env.PrivateKey))
		if err != nil {
			return fmt.Errorf("decode private key: %w", err)
		}
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}

	grant, err := auth.SignGrant(domain.Account(*subject), auth.SignerConfig{
		Issuer:   env.Issuer,
		Audience: env.Audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      *ttl,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, grant)
	return nil
}

func runCollection(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("collection", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "http://localhost:8080", "ledger server address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return get(out, *addr+"/v1/collection")
}

func runIssue(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "http://localhost:8080", "ledger server address")
	buyer := fs.String("buyer", "", "buyer account")
	quantity := fs.Uint64("quantity", 1, "number of tokens to issue")
	payment := fs.String("payment", "0", "payment amount (decimal)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"buyer":    *buyer,
		"quantity": *quantity,
		"payment":  *payment,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return post(out, *addr+"/v1/issue", body, "")
}

func runWithdraw(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("withdraw", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "http://localhost:8080", "ledger server address")
	grant := fs.String("grant", "", "administrator grant")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*grant) == "" {
		return errors.New("grant is required")
	}
	return post(out, *addr+"/v1/admin/withdraw", []byte("{}"), *grant)
}

func get(out io.Writer, url string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	return printResponse(out, resp)
}

func post(out io.Writer, url string, body []byte, grant string) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if grant != "" {
		req.Header.Set("Authorization", "Bearer "+grant)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	return printResponse(out, resp)
}

func printResponse(out io.Writer, resp *http.Response) error {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, payload, "", "  ") == nil {
		payload = pretty.Bytes()
	}
	fmt.Fprintln(out, strings.TrimSpace(string(payload)))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
