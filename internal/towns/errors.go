package towns

import "fmt"

// DataFetchError is returned when the town data service cannot be reached or
// its response cannot be decoded.
type DataFetchError struct {
	Limit  int
	Status int // 0 when no response was received
	Err    error
}

func (e *DataFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch towns (limit=%d, status=%d): %v", e.Limit, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch towns (limit=%d): %v", e.Limit, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }
