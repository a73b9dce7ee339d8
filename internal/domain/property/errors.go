package property

import "fmt"

var ErrNotFound = fmt.Errorf("property not found")
