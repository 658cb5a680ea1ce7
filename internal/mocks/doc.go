// Package mocks holds mockery-generated test doubles for the ports interfaces.
package mocks

//go:generate go tool mockery --dir ../ports --name InquirySink --with-expecter --output . --outpkg mocks --filename mock_inquiry_sink.go
//go:generate go tool mockery --dir ../ports --name HumanVerifier --with-expecter --output . --outpkg mocks --filename mock_human_verifier.go
//go:generate go tool mockery --dir ../ports --name Notifier --with-expecter --output . --outpkg mocks --filename mock_notifier.go
//go:generate go tool mockery --dir ../ports --name HealthRegistry --with-expecter --output . --outpkg mocks --filename mock_health_registry.go
