package parts

import "html/template"

// LabelCSS sizes one label to a 62mm roll and hides nothing but the print button when printing.
const LabelCSS template.CSS = `
body { font-family: sans-serif; margin: 0; }
.label { width: 62mm; padding: 3mm; border: 1px dashed #999; text-align: center; }
.label img.qr { width: 40mm; height: 40mm; }
.label img.bar { width: 56mm; height: 14mm; }
.label h1 { font-size: 12pt; margin: 2mm 0 0; }
.label p { font-size: 8pt; margin: 1mm 0; }
@media print { .label { border: none; } .noprint { display: none; } }
`
