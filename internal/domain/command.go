package domain

// Command is a mutating intent handed to the product use case. The set of
// implementations is closed: CreateProductCommand, UpdateProductCommand and
// DeleteProductCommand.
type Command interface {
	Op() Op
	// Status is the token reported to the client when the command succeeds.
	Status() string
	isCommand()
}

// CreateProductCommand carries a new product. Amount is kept as received so
// that parsing is validated by the use case.
type CreateProductCommand struct {
	Name   string
	Amount string
}

type UpdateProductCommand struct {
	ID     int64
	Name   string
	Amount string
}

type DeleteProductCommand struct {
	ID int64
}

func (CreateProductCommand) Op() Op { return OpAdd }
func (UpdateProductCommand) Op() Op { return OpUpdate }
func (DeleteProductCommand) Op() Op { return OpDelete }

func (CreateProductCommand) Status() string { return "added" }
func (UpdateProductCommand) Status() string { return "updated" }
func (DeleteProductCommand) Status() string { return "deleted" }

func (CreateProductCommand) isCommand() {}
func (UpdateProductCommand) isCommand() {}
func (DeleteProductCommand) isCommand() {}
