package store

import "context"

// Wire-level entity names used by the hosted backend.
const (
	EntityOrder    = "order_c"
	EntityProduct  = "product_c"
	EntityCategory = "category_c"

	// FieldID is the reserved primary key every entity carries. All the
	// custom fields carry the "_c" suffix instead.
	FieldID = "Id"
)

// Client is the remote record store the façades talk to. Every method is a
// single request/response round-trip.
//
// A non-nil error means the call itself blew up (transport, decoding of the
// envelope, ...). A call that reached the backend and got refused comes back
// as a response with Success=false and a Message, with a nil error.
//
// Implementations must be safe for concurrent use: the façades share one
// handle across every call and never synchronize around it.
type Client interface {
	FetchRecords(ctx context.Context, entity string, query *Query) (FetchResponse, error)
	GetRecordByID(ctx context.Context, entity string, id int, query *Query) (RecordResponse, error)
	CreateRecord(ctx context.Context, entity string, req MutationRequest) (MutationResponse, error)
	UpdateRecord(ctx context.Context, entity string, req MutationRequest) (MutationResponse, error)
	DeleteRecord(ctx context.Context, entity string, req DeleteRequest) (MutationResponse, error)

	// The reason there is no "upsert" or "delete by condition" here is that
	// the hosted backend only exposes id-addressed writes. Anything fancier
	// would have to be emulated by a fetch followed by writes, which breaks
	// the one-call-per-operation contract.
}
