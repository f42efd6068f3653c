package render

var ColorTrace = colorTrace
