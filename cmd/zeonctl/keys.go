package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type generatedKeys struct {
	WalletKey     string
	EncryptionKey string
	Address       string
}

func generateKeys() (generatedKeys, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return generatedKeys{}, fmt.Errorf("generate wallet key: %w", err)
	}
	enc := make([]byte, 32)
	if _, err := rand.Read(enc); err != nil {
		return generatedKeys{}, fmt.Errorf("generate encryption key: %w", err)
	}
	return generatedKeys{
		WalletKey:     hexutil.Encode(crypto.FromECDSA(key)),
		EncryptionKey: "0x" + hex.EncodeToString(enc),
		Address:       crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// writeEnv stores keys in path, keeping every other variable already there.
// An existing file is copied to path.backup.<unix ms> first. It returns the
// backup path, or "" when there was nothing to back up.
func writeEnv(path string, keys generatedKeys, now time.Time) (string, error) {
	env := map[string]string{}
	backup := ""

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		env, err = godotenv.Unmarshal(string(existing))
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
		backup = fmt.Sprintf("%s.backup.%d", path, now.UnixMilli())
		if err := os.WriteFile(backup, existing, 0600); err != nil {
			return "", fmt.Errorf("backup %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	env["WALLET_KEY"] = keys.WalletKey
	env["ENCRYPTION_KEY"] = keys.EncryptionKey
	for k, v := range map[string]string{
		"XMTP_ENV":           "dev",
		"NETWORK_ID":         "base-sepolia",
		"OPENROUTER_API_KEY": "sk-or-...",
	} {
		if env[k] == "" {
			env[k] = v
		}
	}

	if err := godotenv.Write(env, path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return backup, nil
}

func newKeysCmd() *cobra.Command {
	var envPath string
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate WALLET_KEY and ENCRYPTION_KEY",
		Long: `Generate a fresh agent wallet key and messaging encryption key.

The keys are written into the .env file; any existing file is backed up first
and its other variables are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := generateKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if printOnly {
				fmt.Fprintf(out, "WALLET_KEY=%s\nENCRYPTION_KEY=%s\n", keys.WalletKey, keys.EncryptionKey)
				return nil
			}

			backup, err := writeEnv(envPath, keys, time.Now())
			if err != nil {
				return err
			}
			if backup != "" {
				fmt.Fprintln(out, warningStyle.Render("⚠️  "+envPath+" already existed, backed up to "+backup))
			}
			fmt.Fprintln(out, successStyle.Render("✅ Keys generated"))
			fmt.Fprintln(out, infoStyle.Render("   Wallet address: ")+addressStyle.Render(keys.Address))
			fmt.Fprintln(out, infoStyle.Render("   ENCRYPTION_KEY: ")+keys.EncryptionKey[:10]+"...")
			fmt.Fprintln(out, mutedStyle.Render("   Set OPENROUTER_API_KEY in "+envPath+" before starting the server."))
			return nil
		},
	}
	cmd.Flags().StringVar(&envPath, "env-file", ".env", "Path of the env file to write")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the keys instead of writing the env file")
	return cmd
}
