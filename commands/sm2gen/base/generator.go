package base

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aacfactory/afsm2"
)

const (
	privateKeyFilename = "sm2.key"
	publicKeyFilename  = "sm2.pub"
)

type Result struct {
	PrivateKey string
	PublicKey  string
}

// Generate creates a key pair. When a destination directory is given as the
// last argument the keys are also written to sm2.key and sm2.pub there.
func Generate(args []string) (result Result, err error) {
	format := "hex"
	dst := ""
	if argsLen := len(args); argsLen > 0 {
		for i, arg := range args {
			arg = strings.TrimSpace(arg)
			if arg == "" {
				continue
			}
			if strings.Index(arg, "--format=") == 0 {
				format = strings.ToLower(strings.TrimSpace(arg[9:]))
				if format != "hex" && format != "base64" {
					err = fmt.Errorf("sm2gen: generate failed, invalid format")
					return
				}
				continue
			}
			if strings.Index(arg, "--") == 0 {
				err = fmt.Errorf("sm2gen: generate failed, unknown flag %s", arg)
				return
			}
			if i == argsLen-1 {
				dst = arg
			}
		}
	}

	pri, pub, genErr := afsm2.GenerateKey()
	if genErr != nil {
		err = fmt.Errorf("sm2gen: generate failed, %v", genErr)
		return
	}
	if format == "base64" {
		if pri, err = hexToBase64(pri); err != nil {
			return
		}
		if pub, err = hexToBase64(pub); err != nil {
			return
		}
	}
	result = Result{PrivateKey: pri, PublicKey: pub}
	if dst == "" {
		return
	}

	outputDir, dirErr := filepath.Abs(dst)
	if dirErr != nil {
		err = fmt.Errorf("sm2gen: generate failed, invalid dst path")
		return
	}
	stat, statErr := os.Stat(outputDir)
	if statErr != nil {
		if !os.IsNotExist(statErr) {
			err = fmt.Errorf("sm2gen: generate failed, invalid dst path")
			return
		}
		if mdErr := os.MkdirAll(outputDir, 0755); mdErr != nil {
			err = fmt.Errorf("sm2gen: generate failed, invalid dst path")
			return
		}
	} else if !stat.IsDir() {
		err = fmt.Errorf("sm2gen: generate failed, invalid dst path")
		return
	}
	err = os.WriteFile(filepath.Join(outputDir, privateKeyFilename), []byte(pri), 0600)
	if err != nil {
		err = fmt.Errorf("sm2gen: generate failed, %v", err)
		return
	}
	err = os.WriteFile(filepath.Join(outputDir, publicKeyFilename), []byte(pub), 0644)
	if err != nil {
		err = fmt.Errorf("sm2gen: generate failed, %v", err)
		return
	}
	return
}

func hexToBase64(s string) (string, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("sm2gen: generate failed, %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
