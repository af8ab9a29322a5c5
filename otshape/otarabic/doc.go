/*
Package otarabic provides the Arabic shaping engine for package otshape.

The engine detects Arabic words and sentences. For every character of a word
it decides whether the character connects to its neighbours and selects one
of the positional forms 'init', 'medi', 'fina' or 'isol'. Then required
ligatures ('rlig') are applied to words, and every sentence is reversed into
presentation order.

Fonts without positional form features are served from the Arabic
presentation forms blocks of Unicode, if the font maps them.
*/
package otarabic
