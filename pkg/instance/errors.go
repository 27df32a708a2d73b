package instance

import "errors"

var (
	// ErrTopologyChanged is returned by Initialize when the unit changed its
	// channel counts while its sample rate was applied. The instance stays
	// uninitialized.
	ErrTopologyChanged = errors.New("instance: channel counts changed while setting sample rate")

	// ErrNotInitialized is recorded when a block is rendered before Initialize
	// succeeded or after Finalize.
	ErrNotInitialized = errors.New("instance: not initialized")

	// ErrInvalidBlock is recorded when a block has a negative frame count or a
	// channel slice shorter than the frames asked for.
	ErrInvalidBlock = errors.New("instance: block does not fit the buffers")

	// ErrGroupIndex is returned for a channel group the group has no instance for.
	ErrGroupIndex = errors.New("instance: channel group out of range")
)
