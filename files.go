package accounts

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
)

//go:embed data/common_passwords.txt
var commonPasswordsFile []byte

// CommonPasswords returns the embedded list of common passwords, lower cased
func CommonPasswords() map[string]struct{} {
	out := make(map[string]struct{}, 256)
	scanner := bufio.NewScanner(bytes.NewReader(commonPasswordsFile))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	return out
}
