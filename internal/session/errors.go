package session

import "errors"

// ErrUnknownStatus возвращается при попытке установить статус вне допустимого набора.
var ErrUnknownStatus = errors.New("неизвестный статус присутствия")
