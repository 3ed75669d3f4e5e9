package console

import (
	"io"

	"github.com/pkg/browser"
)

type Browser interface {
	Open(url string) error
}

// SystemBrowser открывает ссылку в браузере по умолчанию
type SystemBrowser struct{}

func (SystemBrowser) Open(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}
