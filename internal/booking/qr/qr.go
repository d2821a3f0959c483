// Package qr renders the encrypted boarding code stamped onto a
// confirmed ticket. The payload is the ticket serialized and AES
// encrypted, so a conductor's scanner with the shared secret can verify
// it offline.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"ms-busbooking/internal/models"

	"github.com/skip2/go-qrcode"
)

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

func (g *Generator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	payload := struct {
		TicketNumber  string `json:"ticket_number"`
		ScheduleID    string `json:"schedule_id"`
		PassengerID   string `json:"passenger_id"`
		SeatID        string `json:"seat_id"`
		BoardingPoint string `json:"boarding_point"`
		DroppingPoint string `json:"dropping_point"`
	}{
		TicketNumber:  ticket.TicketNumber,
		ScheduleID:    ticket.ScheduleID,
		PassengerID:   ticket.PassengerID,
		SeatID:        ticket.SeatID,
		BoardingPoint: ticket.BoardingPoint,
		DroppingPoint: ticket.DroppingPoint,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
