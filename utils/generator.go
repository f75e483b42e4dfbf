package utils

import (
	"math/rand"
	"time"

	"gorm.io/gorm"

	"counselcore/models"
)

const referenceCodeLength = 10
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueReferenceCode produces the short code a client writes on the
// bank transfer so an admin can match the payment to the purchase.
func GenerateUniqueReferenceCode(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referenceCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := string(b)

		var purchase models.PackagePurchase
		err := tx.Where("reference_code = ?", code).First(&purchase).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
