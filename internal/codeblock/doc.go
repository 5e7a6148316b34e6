/*
Responsibilities
- Flatten markup inside code to literal text before sanitization
- Recognize editor line widgets and highlighter wrappers
- Produce exactly one <pre><code> per block with blank edges trimmed
- Infer the block language from explicit markup only

Content of a block is never used to guess its language.
*/
package codeblock
