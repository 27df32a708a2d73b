package instance

import "fmt"

// teardown runs cleanup steps, turning panics into errors, and keeps the first failure.
type teardown struct {
	first error
	count int
}

func (t *teardown) run(step string, fn func() error) {
	if err := t.call(step, fn); err != nil {
		t.count++
		if t.first == nil {
			t.first = err
		}
	}
}

func (t *teardown) call(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", step, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

// err returns the first failure, noting how many steps failed in total.
func (t *teardown) err() error {
	if t.count > 1 {
		return fmt.Errorf("%w (and %d more)", t.first, t.count-1)
	}
	return t.first
}
