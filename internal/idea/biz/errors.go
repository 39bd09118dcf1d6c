package biz

import "errors"

var (
	// ErrUserInputRequired 用户输入为空
	ErrUserInputRequired = errors.New("user input is required")

	// ErrInvalidAppName 模型返回的应用名为空
	ErrInvalidAppName = errors.New("app name is empty")
)
