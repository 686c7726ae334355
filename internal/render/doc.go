// Package render turns session state into the view a client displays.
//
// TextMap is the recognition result renderer: given the blocks of a
// recognition result it produces one tappable Element per block, in order,
// or a placeholder message when there are none. Screen wraps it with the
// rest of the screen (header, actions, idle and loading states).
//
// Rendering is a pure function of its input. Elements carry no state of
// their own; activating one hands the block's text to the injected
// Messenger and does nothing else.
package render
