package coordinator

// Display messages shown to the user. Errors never reach the state as raw text.
const (
	MsgEmptyPantry    = "Dime qué ingredientes tienes para que el plan sea realista."
	MsgPlanFailed     = "VitalIA tuvo un pequeño error al calcular tu gasto energético. Reintenta."
	MsgShoppingFailed = "No pudimos generar tu lista de compras inteligente."
	MsgChatFallback   = "Perdí la conexión un segundo. ¿Me lo repites?"
	MsgLoading        = "Calculando macros..."
)
