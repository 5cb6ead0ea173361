package domain

import "context"

// ServicePort is the account store surface other modules consume
type ServicePort interface {
	Account(ctx context.Context, uid string) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
	Devices(ctx context.Context, uid string) ([]Device, error)
	DeviceIDs(ctx context.Context, uid string) ([]string, error)
	DeleteAccount(ctx context.Context, uid string) error
}
