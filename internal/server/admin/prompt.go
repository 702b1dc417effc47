package admin

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

func readOnce(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// PromptNewPassword reads a password twice without echo and returns it when
// both entries match.
func PromptNewPassword(w io.Writer) (string, error) {
	first, err := readOnce(w, "New password: ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := readOnce(w, "Repeat password: ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
