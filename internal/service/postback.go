package service

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TransactionBody struct {
	Amount              float64 `json:"amount"`
	Status              string  `json:"status"`
	Currency            string  `json:"currency"`
	OrderID             string  `json:"order_id"`
	CreatedAt           int64   `json:"created_at"`
	ActivatedAt         *int64  `json:"activated_at"`
	CustomUserID        *string `json:"custom_user_id"`
	PaymentSystem       string  `json:"payment_system"`
	CustomTransactionID *string `json:"custom_transaction_id"`
	Signature           string  `json:"signature"`
}

type PostbackBody struct {
	AccessKey    string            `json:"access_key"`
	Signature    string            `json:"signature"`
	Transactions []TransactionBody `json:"transactions"`
}

// verifySignature recomputes the provider's MD5 over the concatenated
// transaction fields and the shared access key.
func verifySignature(accessKey string, transactions []TransactionBody, signature string) bool {
	var signatureString string
	for _, tx := range transactions {
		customUserID := ""
		if tx.CustomUserID != nil {
			customUserID = *tx.CustomUserID
		}
		activatedAt := ""
		if tx.ActivatedAt != nil {
			activatedAt = strconv.FormatInt(*tx.ActivatedAt, 10)
		}
		customTransactionID := ""
		if tx.CustomTransactionID != nil {
			customTransactionID = *tx.CustomTransactionID
		}

		signatureString += fmt.Sprintf("%s%s%s%s%s%s%d%s%s%s",
			tx.OrderID,
			customUserID,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Currency,
			tx.Status,
			tx.PaymentSystem,
			tx.CreatedAt,
			activatedAt,
			customTransactionID,
			accessKey)
	}

	hash := md5.Sum([]byte(signatureString))
	return hex.EncodeToString(hash[:]) == signature
}

// PaymentSystemPostback is the payment provider's callback. A transaction
// with a known withdrawal order id updates that withdrawal; anything else
// with status Success is credited as a deposit. Replayed order ids are
// absorbed by the deposit unique index so the provider can retry safely.
func PaymentSystemPostback(c *gin.Context) {
	var postbackBody PostbackBody

	if err := c.ShouldBindJSON(&postbackBody); err != nil {
		logger.Error("Unable to unmarshal postback: %v", err)
		c.JSON(400, gin.H{"error": "Unable to unmarshal body"})
		return
	}

	expectedAccessKey := os.Getenv("PAYMENT_ACCESS_KEY")
	if expectedAccessKey == "" || postbackBody.AccessKey != expectedAccessKey {
		c.JSON(403, gin.H{"error": "invalid access key"})
		return
	}

	if !verifySignature(postbackBody.AccessKey, postbackBody.Transactions, postbackBody.Signature) {
		c.JSON(403, gin.H{"error": "signature not valid"})
		return
	}

	processed := 0

	for i := range postbackBody.Transactions {
		if handlePostbackTransaction(&postbackBody.Transactions[i]) {
			processed++
		}
	}

	if processed != len(postbackBody.Transactions) {
		c.JSON(500, gin.H{"error": "some transactions failed"})
		return
	}

	c.JSON(200, gin.H{"status": "OK"})
}

func handlePostbackTransaction(tx *TransactionBody) bool {
	isWithdrawal, err := models.UpdateWithdrawalStatusIfRequired(tx.OrderID, tx.Status)
	if err != nil {
		logger.Error("%v", err)
		return false
	}
	if isWithdrawal {
		return true
	}

	if tx.Status != "Success" {
		// Acknowledge failed deposits so the provider stops retrying them.
		logger.Debug("postback transaction status not Success; order id: %s", tx.OrderID)
		return true
	}

	if tx.CustomUserID == nil {
		logger.Error("postback deposit without custom_user_id; order id: %s", tx.OrderID)
		return false
	}

	userID, err := strconv.ParseInt(*tx.CustomUserID, 10, 64)
	if err != nil {
		logger.Error("postback custom_user_id not numeric: %s", *tx.CustomUserID)
		return false
	}

	if tx.Amount < models.MinDepositUSD {
		logger.Error("postback deposit below minimum; order id: %s", tx.OrderID)
		return false
	}

	snap, err := models.CurrentPolicySnapshot(nil)
	if err != nil {
		logger.Error("%v", err)
		return false
	}

	if _, err = models.AddDeposit(userID, tx.OrderID, tx.Amount, snap); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Replay of an already-credited order.
			return true
		}
		logger.Error("%v", err)
		return false
	}

	return true
}
