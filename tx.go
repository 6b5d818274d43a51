package weave

import (
	"reflect"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/grantd/errors"
)

// Msg is message for the blockchain to take an action
// (Make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Return the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Multiple types may have the same value, and will end up at the
	// same Handler.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one test does not pass and message is considered
	// invalid.
	// This validation performs only tests that do not require access to
	// the database.
	Validate() error
}

// Persistent is implemented by every entity that is serialized before it is
// stored or sent over the wire. All such entities are protobuf messages and
// are encoded with proto.Marshal and decoded with proto.Unmarshal.
//
// Implementations must not define their own Marshal or Unmarshal methods.
// Encoding is done by reflection over the protobuf struct tags.
type Persistent interface {
	proto.Message
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender (cryptographic signatures),
// and anything else needed to pass through middleware.
//
// Each Application must define their own tx type, which
// embeds all the middlewares that we wish to use.
// sigs.SignedTx is a common interface that many apps
// will wish to support.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrInput, "nil message")
	}

	// Rely on type reflection to ensure that the loaded message is of the
	// same type as the destination.
	msgVal := reflect.ValueOf(msg)
	destVal := reflect.ValueOf(destination)
	if destVal.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	if destVal.IsNil() {
		return errors.Wrap(errors.ErrType, "nil destination")
	}
	if !msgVal.Type().AssignableTo(destVal.Type()) {
		return errors.Wrapf(errors.ErrType, "want %T message, got %T", destination, msg)
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	destVal.Elem().Set(msgVal.Elem())
	return nil
}

// Metadata is embedded by every stored model and message.
//
// Schema is the version of the serialization schema the entity was
// written with. The only supported schema version is 1.
type Metadata struct {
	Schema uint32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema,omitempty"`
}

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

// Validate returns an error if the metadata is missing or declares an
// unsupported schema.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing")
	}
	if m.Schema != 1 {
		return errors.Wrapf(errors.ErrMetadata, "unsupported schema %d", m.Schema)
	}
	return nil
}
