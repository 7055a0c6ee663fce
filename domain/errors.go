package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrGroupBuyNotFound = errors.New("group-buy not found")
	ErrEventNotFound    = errors.New("recommendation event not found")
	ErrGroupBuyClosed   = errors.New("group-buy is not open")
	ErrEmailTaken       = errors.New("email already exists")
)
