// Package xmask obfuscates rectangular areas of images in a reversible way.
//
// The pixels of every area are cut into blocks and scrambled with a key. The blocks are moved next to the
// image and a colour byte code describing the operation is painted along its bottom edge, so the areas can
// be revealed from the obfuscated image alone, even after it has been resized.
//
// You can manually use the Encoder and Decoder types of the obfuscate package, or automate the tasks by
// connecting one of the taps to an obfuscate.Engine. Check taps.DirectoryTap to see an example.
package xmask
