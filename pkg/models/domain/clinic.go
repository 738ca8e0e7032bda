package domain

// Clinic identifies one reporting unit from the upstream directory.
type Clinic struct {
	ID   int
	Name string
}
