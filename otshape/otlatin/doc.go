/*
Package otlatin provides the Latin shaping engine for package otshape.

The engine detects Latin words and applies standard ligatures ('liga') to
them. It is the engine of choice for text of unknown script as well, as it
touches Latin words only.
*/
package otlatin
