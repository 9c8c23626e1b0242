package i18n

var catalogs = map[string]map[string]string{
	LocaleES: {
		"error.bad_request":              "Solicitud inválida",
		"error.unauthorized":             "No autorizado",
		"error.forbidden":                "Sin permiso para esta acción",
		"error.not_found":                "Recurso no encontrado",
		"error.internal":                 "Error interno, intenta de nuevo",
		"error.rate_limited":             "Demasiados intentos, espera %d segundos",
		"error.rate_limit_unavailable":   "Límite de solicitudes no disponible",
		"error.jwt_secret_missing":       "Autenticación no configurada",
		"error.auth_header_missing":      "Falta el encabezado de autorización",
		"error.auth_header_invalid":      "Encabezado de autorización inválido",
		"error.token_invalid":            "Token inválido o expirado",
		"error.token_revoked":            "Token revocado, inicia sesión de nuevo",
		"error.customer_token_invalid":   "La sesión del cliente no es válida",
		"error.session_not_found":        "La sesión no existe o expiró",
		"error.product_not_found":        "Producto no encontrado",
		"error.product_id_invalid":       "Identificador de producto inválido",
		"error.catalog_fetch_failed":     "No se pudo cargar el catálogo",
		"error.stock_exceeded":           "Producto agotado",
		"error.cart_empty":               "Tu carrito está vacío",
		"error.cart_item_not_found":      "El producto no está en tu carrito",
		"error.address_details_required": "Escribe la calle y número para el envío",
		"error.payment_method_required":  "Selecciona un método de pago",
		"error.payment_method_invalid":   "Método de pago no válido",
		"error.fulfillment_mode_invalid": "Elige envío a domicilio o recoger en tienda",
		"error.location_required":        "Selecciona tu zona o sucursal",
		"error.location_invalid":         "Zona o sucursal no disponible",
		"error.checkout_step_invalid":    "Esta acción no está disponible en este paso",
		"error.submission_in_flight":     "Tu pedido ya se está procesando",
		"error.no_completed_order":       "Aún no hay un pedido confirmado",
		"error.order_create_failed":      "No se pudo crear el pedido, intenta de nuevo",
		"error.order_not_found":          "Pedido no encontrado",
		"error.order_id_invalid":         "Identificador de pedido inválido",
		"error.order_fetch_failed":       "No se pudieron cargar los pedidos",
		"error.order_update_failed":      "No se pudo actualizar el pedido",
		"error.illegal_transition":       "El pedido solo puede avanzar a la siguiente etapa",
		"error.precondition_failed":      "Otro operador ya actualizó este pedido, recarga la lista",
		"error.report_fetch_failed":      "No se pudieron calcular las métricas",
		"stage.pending":                  "Pendiente",
		"stage.preparing":                "Preparando",
		"stage.ready":                    "Listo",
		"stage.completed":                "Completado",
		"action.preparing":               "Empezar a preparar",
		"action.ready":                   "Marcar como listo",
		"action.completed":               "Entregado",
		"mode.delivery":                  "Envío a domicilio",
		"mode.pickup":                    "Recoger en tienda",
		"payment.cash":                   "Efectivo",
		"payment.card":                   "Tarjeta",
		"ticket.title":                   "Pedido #%d confirmado",
	},
	LocaleEN: {
		"error.bad_request":              "Invalid request",
		"error.unauthorized":             "Unauthorized",
		"error.forbidden":                "You are not allowed to do this",
		"error.not_found":                "Resource not found",
		"error.internal":                 "Internal error, please retry",
		"error.rate_limited":             "Too many attempts, wait %d seconds",
		"error.rate_limit_unavailable":   "Rate limiting is unavailable",
		"error.jwt_secret_missing":       "Authentication is not configured",
		"error.auth_header_missing":      "Missing authorization header",
		"error.auth_header_invalid":      "Invalid authorization header",
		"error.token_invalid":            "Invalid or expired token",
		"error.token_revoked":            "Token revoked, please sign in again",
		"error.customer_token_invalid":   "Customer session is not valid",
		"error.session_not_found":        "Session not found or expired",
		"error.product_not_found":        "Product not found",
		"error.product_id_invalid":       "Invalid product id",
		"error.catalog_fetch_failed":     "Could not load the catalog",
		"error.stock_exceeded":           "Product out of stock",
		"error.cart_empty":               "Your cart is empty",
		"error.cart_item_not_found":      "The product is not in your cart",
		"error.address_details_required": "Enter the street and number for delivery",
		"error.payment_method_required":  "Select a payment method",
		"error.payment_method_invalid":   "Invalid payment method",
		"error.fulfillment_mode_invalid": "Choose delivery or store pickup",
		"error.location_required":        "Select your zone or branch",
		"error.location_invalid":         "Zone or branch not available",
		"error.checkout_step_invalid":    "This action is not available at this step",
		"error.submission_in_flight":     "Your order is already being processed",
		"error.no_completed_order":       "There is no confirmed order yet",
		"error.order_create_failed":      "Could not create the order, please retry",
		"error.order_not_found":          "Order not found",
		"error.order_id_invalid":         "Invalid order id",
		"error.order_fetch_failed":       "Could not load orders",
		"error.order_update_failed":      "Could not update the order",
		"error.illegal_transition":       "Orders can only move to the next stage",
		"error.precondition_failed":      "Another operator already updated this order, reload the list",
		"error.report_fetch_failed":      "Could not compute metrics",
		"stage.pending":                  "Pending",
		"stage.preparing":                "Preparing",
		"stage.ready":                    "Ready",
		"stage.completed":                "Completed",
		"action.preparing":               "Start preparing",
		"action.ready":                   "Mark ready",
		"action.completed":               "Hand over",
		"mode.delivery":                  "Home delivery",
		"mode.pickup":                    "Store pickup",
		"payment.cash":                   "Cash",
		"payment.card":                   "Card",
		"ticket.title":                   "Order #%d confirmed",
	},
}
