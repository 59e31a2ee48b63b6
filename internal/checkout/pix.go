package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const pixIDLength = 10

// PixCode builds a BR-Code-style copy-and-paste payload for the given total.
// The payload embeds the amount in whole currency units with two decimals
// and a random merchant transaction id; rendering the QR image is up to
// the consuming view.
func PixCode(totalCents int64) string {
	amount := fmt.Sprintf("%d.%02d", totalCents/100, totalCents%100)
	return fmt.Sprintf(
		"00020126580014BR.GOV.BCB.PIX0136SABORVIVO%s520400005303986540%s5802BR5905SABOR6009SAOPAULO62070503***6304",
		randomToken(pixIDLength),
		amount,
	)
}

// OrderNumber produces the short human-facing order reference shown on the
// confirmation screen.
func OrderNumber() string {
	return randomToken(6)
}

// randomToken derives an uppercase alphanumeric token from a fresh UUID.
func randomToken(length int) string {
	compact := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if length > len(compact) {
		length = len(compact)
	}
	return compact[:length]
}
