// pkg/object/encrypt.go

package object

import (
	"context"
	"crypto/aes"
	"crypto/sha256"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/xts"
)

// Encryptor encrypts one page in place of another, the page number is the tweak.
type Encryptor interface {
	Encrypt(dst, src []byte, pageNo uint64)
	Decrypt(dst, src []byte, pageNo uint64)
}

type xtsEncryptor struct {
	c *xts.Cipher
}

// NewXTSEncryptor derives an AES-256-XTS key from passphrase and salt.
func NewXTSEncryptor(passphrase, salt string) (Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), 10000, 64, sha256.New)
	c, err := xts.NewCipher(aes.NewCipher, key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %s", err)
	}
	return &xtsEncryptor{c}, nil
}

func (e *xtsEncryptor) Encrypt(dst, src []byte, pageNo uint64) {
	e.c.Encrypt(dst, src, pageNo)
}

func (e *xtsEncryptor) Decrypt(dst, src []byte, pageNo uint64) {
	e.c.Decrypt(dst, src, pageNo)
}

type encrypted struct {
	PageBlob
	enc Encryptor
}

// NewEncrypted returns a page blob that encrypts every page it saves. Pages that
// were never written are all zeros remotely and read back as zeros.
func NewEncrypted(o PageBlob, enc Encryptor) (PageBlob, error) {
	if o.PageSize()%aes.BlockSize != 0 {
		return nil, fmt.Errorf("page size %d is not a multiple of %d", o.PageSize(), aes.BlockSize)
	}
	return &encrypted{o, enc}, nil
}

func (e *encrypted) String() string {
	return fmt.Sprintf("%s(encrypted)", e.PageBlob)
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

func (e *encrypted) decrypt(data []byte, startPage int) {
	ps := e.PageSize()
	for i := 0; i+ps <= len(data); i += ps {
		p := data[i : i+ps]
		if isZero(p) {
			continue
		}
		e.enc.Decrypt(p, p, uint64(startPage+i/ps))
	}
}

func (e *encrypted) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	data, err := e.PageBlob.GetPages(ctx, startPage, pages)
	if err != nil {
		return nil, err
	}
	e.decrypt(data, startPage)
	return data, nil
}

func (e *encrypted) SavePages(ctx context.Context, startPage int, data []byte) error {
	if err := checkPages("save pages", data, e.PageSize()); err != nil {
		return err
	}
	ps := e.PageSize()
	ciphertext := make([]byte, len(data))
	for i := 0; i < len(data); i += ps {
		e.enc.Encrypt(ciphertext[i:i+ps], data[i:i+ps], uint64(startPage+i/ps))
	}
	return e.PageBlob.SavePages(ctx, startPage, ciphertext)
}

func (e *encrypted) Download(ctx context.Context) ([]byte, error) {
	data, err := e.PageBlob.Download(ctx)
	if err != nil {
		return nil, err
	}
	e.decrypt(data, 0)
	return data, nil
}

var _ PageBlob = &encrypted{}
