/*
Package macro implements a pattern-directed macro expander for JavaScript-like
source text.

# Overview

A source file may open with a macro block:

	macros: {
	    $macro GREET $name #(
	        say($name)
	    )#
	}

	GREET "world"

Every definition pairs an invocation pattern with a body template. Expanding
the rest of the file replaces each line that starts with a macro's head and
matches its pattern by the rendered body, and repeats until a pass changes
nothing. The example above expands to:

	say("world")

# Pattern Syntax

The first element of a pattern is its head: a literal that must begin the
invocation line. The remaining elements are:

  - Literal: any other word or symbol, matched verbatim. Words require a
    word boundary, so "struct" never matches "structure".
  - $name: one atom. An atom is a string or template literal, the trimmed
    interior of a bracketed run, or a run of characters up to whitespace or
    punctuation.
  - $name...: the rest of the line, up to a line break or ';'.
  - [$name], ($name), {$name}: the interior of a balanced bracket run.
    Nested brackets and literals inside are kept whole.
  - [$name...]: the trailing run of the invocation, stopping at a line
    break, ';' or an unmatched closing bracket.
  - $( ... ): an optional group.
  - $( ... )..., $( ... ),..., $( ... );...: a repetition matched zero or
    more times, with an optional separator.

An invocation stays on its head's line. Only a bracket opened by a literal
of the pattern, or the $( ... ) of an expression-position invocation, lets
the match continue on the following lines.

# Body Templates

Bodies reference captures as $name. A block written $( ... )... is rendered
once per iteration of the repetition whose variables it references, one
iteration per line. A constructed identifier $`${$attr}_var` joins captured
text and literal text into a single identifier; when no capture has the
exact referenced name, the longest captured prefix is used and the rest of
the name is copied literally.

A body runs to the first )# outside a literal or comment. Body text is not
tokenized, so a quote that does not close on its line, as in the regular
expression /'/g, is copied like any other character.

Invocations in expression position are written $( HEAD args ) and are
expanded recursively inside the text where they appear.

# Errors

Tokenizing fails with *TokenizeError on unterminated literals or comments,
compiling a pattern fails with *PatternCompileError, and a block that cannot
be parsed fails with *MalformedBlockError. Expansion that does not reach a
fixed point within the pass limit fails with an error wrapping
ErrExpansionDivergence.
*/
package macro
